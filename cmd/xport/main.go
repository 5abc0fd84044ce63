/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/trialdata/xportio/cmd/xport/cmd"
)

func main() {
	cmd.Execute()
}
