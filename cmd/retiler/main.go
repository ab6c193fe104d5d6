// Command retiler drives the cobra CLI in internal/cmd.
package main

import "github.com/tilepyramid/retiler/internal/cmd"

func main() {
	cmd.Execute()
}
