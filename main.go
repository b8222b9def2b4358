// ./main.go
package main

import (
	"github.com/webloop/webloop/cmd"
)

func main() {
	cmd.Execute()
}
