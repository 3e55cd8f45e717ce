// Command cloudvar reads, writes, and watches the cloud variables of a
// project from the command line.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
