// Package models holds the auction and bid model and all the rules that
// derive presentation values from it: the pricing engine, the lifecycle
// state machine and bid minimums. Everything in here is pure; nothing talks
// to the ledger.
package models

import (
	"github.com/delta/fhe-auction-client/utils"
	"github.com/sirupsen/logrus"
)

var logger = utils.Logger.WithFields(logrus.Fields{
	"module": "models",
})

// Init configures the models package
func Init(config *utils.Config) {
	logger = utils.Logger.WithFields(logrus.Fields{
		"module": "models",
	})
}
