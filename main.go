// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package main

import "github.com/snowfork/lane-relayer/cmd"

func main() {
	cmd.Execute()
}
