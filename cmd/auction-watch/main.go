// Command auction-watch follows auctions on the ledger and logs their derived
// status, live price and bid ranking as they change. It never signs anything.
package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/delta/fhe-auction-client/bidding"
	"github.com/delta/fhe-auction-client/chain"
	"github.com/delta/fhe-auction-client/datastreams"
	"github.com/delta/fhe-auction-client/fhe"
	"github.com/delta/fhe-auction-client/listing"
	"github.com/delta/fhe-auction-client/models"
	"github.com/delta/fhe-auction-client/ranking"
	"github.com/delta/fhe-auction-client/repository"
	"github.com/delta/fhe-auction-client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"
)

const listenerId = "auction-watch"

var log = utils.Logger.WithFields(logrus.Fields{
	"module": "main",
})

func main() {
	app := cli.NewApp()
	app.Name = "auction-watch"
	app.Usage = "follow auctions and log their status and price"
	app.Flags = []cli.Flag{
		configFlag,
		auctionFlag,
		discoverFlag,
		mechanismFlag,
		metricsAddrFlag,
	}
	app.Action = watchAction

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initPackages(config *utils.Config) {
	utils.Init(config)
	models.Init(config)
	chain.Init(config)
	fhe.Init(config)
	bidding.Init(config)
	datastreams.Init(config)
	repository.Init(config)
	listing.Init(config)

	log = utils.Logger.WithFields(logrus.Fields{
		"module": "main",
	})
}

func watchAction(ctx *cli.Context) error {
	utils.InitConfiguration(ctx.String(configFlag.Name))
	config := utils.GetConfiguration()
	initPackages(config)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ethclient.DialContext(runCtx, config.RPCURL)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", config.RPCURL)
	}
	defer client.Close()

	contract, err := chain.NewContract(common.HexToAddress(config.AuctionContract))
	if err != nil {
		return err
	}
	ledger := chain.NewEthLedger(client, chain.ReadOnlyWallet{}, contract, big.NewInt(config.ChainID), config.ReceiptPollInterval())

	streams := datastreams.NewManager(config)
	repo, err := repository.New(ledger, config, streams.GetAuctionUpdatesStream())
	if err != nil {
		return err
	}

	ids, err := auctionIds(runCtx, ctx, config, ledger)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("nothing to watch, pass --auction or --discover")
	}

	done := make(chan struct{})
	defer close(done)

	updates := make(chan interface{}, 16+len(ids))
	for _, id := range ids {
		repo.Watch(id)
		streams.GetAuctionUpdatesStream().AddListener(done, updates, id, listenerId)
	}
	ticks := make(chan interface{}, 16)
	streams.GetPriceTicksStream().AddListener(done, ticks, listenerId)

	if addr := ctx.String(metricsAddrFlag.Name); addr != "" {
		go serveMetrics(addr)
	}

	poller := repository.NewPoller(repo, config.RefreshInterval())
	if err := poller.Start(runCtx); err != nil {
		return err
	}
	defer poller.Stop()

	go streams.GetPriceTicksStream().Run(runCtx, repo)

	log.Infof("Watching %d auction(s) on %s", len(ids), config.RPCURL)

	for {
		select {
		case <-runCtx.Done():
			log.Info("Stopping")
			return nil
		case u := <-updates:
			logAuctionUpdate(repo, u.(*datastreams.AuctionUpdate))
		case t := <-ticks:
			logPriceTicks(t.(*datastreams.PriceTicksUpdate))
		}
	}
}

// auctionIds collects the ids given on the command line and, with --discover,
// the active auctions on the listing service. When the listing service is down
// every auction the ledger knows of is watched instead.
func auctionIds(ctx context.Context, cliCtx *cli.Context, config *utils.Config, reader chain.AuctionReader) ([]models.AuctionID, error) {
	var ids []models.AuctionID
	for _, id := range cliCtx.Int64Slice(auctionFlag.Name) {
		if id < 0 {
			return nil, errors.Errorf("invalid auction id %d", id)
		}
		ids = append(ids, models.AuctionID(id))
	}
	if !cliCtx.Bool(discoverFlag.Name) {
		return ids, nil
	}

	active := models.Active
	filter := listing.Filter{
		Status:   &active,
		SortBy:   listing.SortByEndTime,
		PageSize: 100,
	}
	if m := cliCtx.String(mechanismFlag.Name); m != "" {
		mechanism, err := models.ParseMechanism(m)
		if err != nil {
			return nil, err
		}
		filter.Mechanism = &mechanism
	}

	page, err := listing.NewClient(config.ListingURL, 10*time.Second).ListAuctions(ctx, filter)
	if err == nil {
		for _, a := range page.Auctions {
			ids = append(ids, a.Id)
		}
		return ids, nil
	}

	log.Warnf("Listing service unavailable, watching every auction on the ledger: %+v", err)

	count, err := reader.GetAuctionCount(ctx)
	if err != nil {
		return nil, err
	}
	for id := uint64(0); id < count; id++ {
		ids = append(ids, models.AuctionID(id))
	}
	return ids, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Infof("Serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("Metrics server stopped: %+v", err)
	}
}

func logAuctionUpdate(repo *repository.AuctionRepository, u *datastreams.AuctionUpdate) {
	a := u.Auction
	var l = log.WithFields(logrus.Fields{
		"auctionId": a.Id,
		"mechanism": a.Mechanism.DisplayName(),
		"seller":    utils.FormatAddress(a.Seller),
	})

	left := utils.GetTimeRemaining(a.EndTime, u.FetchedAt)
	l.Infof("%s, %d bid(s) from %d bidder(s), ends in %s", u.Status, a.TotalBids, a.UniqueBidders, utils.FormatDuration(left.Total))

	snapshot, ok := repo.Peek(a.Id)
	if !ok {
		return
	}
	for _, r := range ranking.RankBids(a, snapshot.Bids) {
		if !r.IsWinning {
			continue
		}
		l.Infof("Winning: %s with %s ETH (rank %d, %d unit(s))",
			utils.FormatAddress(r.Bid.Bidder), utils.FormatEther(r.Bid.Amount), r.Rank, r.Allocated)
	}
}

func logPriceTicks(u *datastreams.PriceTicksUpdate) {
	for _, t := range u.Ticks {
		if t.Price == nil {
			log.Infof("Auction #%d: %s, no price yet", t.AuctionId, t.Status)
			continue
		}
		log.Infof("Auction #%d: %s at %s ETH", t.AuctionId, t.Status, utils.FormatEther(t.Price))
	}
}
