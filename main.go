// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/kscriptgo/kscript/cmd/kscript"

func main() {
	cmd.Execute()
}
