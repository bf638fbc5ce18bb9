package main

import (
	"pricewatch/cmd/pricewatch/commands"
	"pricewatch/lib/util/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	commands.ExecuteContext(ctx)
}
