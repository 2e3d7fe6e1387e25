package main

import (
	"github.com/corray333/backend-labs/shop/internal/cmd"
)

func main() {
	cmd.Execute()
}
