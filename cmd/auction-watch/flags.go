package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Value: "config.json",
		Usage: "path of the configuration file",
	}
	auctionFlag = cli.Int64SliceFlag{
		Name:  "auction",
		Usage: "id of an auction to watch (repeatable)",
	}
	discoverFlag = cli.BoolFlag{
		Name:  "discover",
		Usage: "watch the auctions the listing service reports as active",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve prometheus metrics on this address (e.g. :2112), off when empty",
	}
	mechanismFlag = cli.StringFlag{
		Name:  "mechanism",
		Usage: "only discover auctions of this type (sealed-bid|dutch|english|batch)",
	}
)
