// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/ATorbado/leon-radares/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
