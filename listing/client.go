// Package listing is a client for the auction listing/indexing service.
// Listings are a convenience for discovery; the ledger stays authoritative.
package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/delta/fhe-auction-client/models"
	"github.com/delta/fhe-auction-client/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger = utils.Logger.WithFields(logrus.Fields{
	"module": "listing",
})

// Init configures the listing package
func Init(config *utils.Config) {
	logger = utils.Logger.WithFields(logrus.Fields{
		"module": "listing",
	})
}

// ErrNotFound is returned for unknown auctions
var ErrNotFound = errors.New("not found")

// FetchError is returned when the listing service couldn't be read.
// Callers decide whether to fall back to cached data; nothing is substituted here.
type FetchError struct {
	URL        string
	StatusCode int // 0 if no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("listing %s: status %d: %s", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("listing %s: %s", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SortBy is a listing sort key
type SortBy string

const (
	SortByPrice     SortBy = "price"
	SortByEndTime   SortBy = "endTime"
	SortByBids      SortBy = "bids"
	SortByCreatedAt SortBy = "createdAt"
)

// Filter selects auctions on the listing service. Zero values are left out.
type Filter struct {
	Mechanism   *models.Mechanism
	Status      *models.Status
	Seller      *common.Address
	NftContract *common.Address
	MinPrice    string
	MaxPrice    string
	SortBy      SortBy
	Descending  bool
	Page        int
	PageSize    int
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.Mechanism != nil {
		q.Set("type", f.Mechanism.String())
	}
	if f.Status != nil {
		q.Set("status", f.Status.String())
	}
	if f.Seller != nil {
		q.Set("seller", f.Seller.Hex())
	}
	if f.NftContract != nil {
		q.Set("nftContract", f.NftContract.Hex())
	}
	if f.MinPrice != "" {
		q.Set("minPrice", f.MinPrice)
	}
	if f.MaxPrice != "" {
		q.Set("maxPrice", f.MaxPrice)
	}
	if f.SortBy != "" {
		q.Set("sortBy", string(f.SortBy))
		if f.Descending {
			q.Set("sortOrder", "desc")
		} else {
			q.Set("sortOrder", "asc")
		}
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(f.PageSize))
	}
	return q
}

// Page is one page of listed auctions
type Page struct {
	Auctions []*models.Auction
	Page     int
	PageSize int
	// HasMore is a guess: a full page may be followed by more
	HasMore bool
}

// Client talks to the listing service
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ListAuctions returns one page of auctions matching f
func (c *Client) ListAuctions(ctx context.Context, f Filter) (*Page, error) {
	var l = logger.WithFields(logrus.Fields{
		"method":       "ListAuctions",
		"param_filter": f.query().Encode(),
	})

	var dtos []auctionDTO
	if err := c.get(ctx, "/auctions", f.query(), &dtos); err != nil {
		l.Errorf("Failed: '%s'", err)
		return nil, err
	}

	page := &Page{Page: f.Page, PageSize: f.PageSize}
	for i := range dtos {
		a, err := dtos[i].toModel()
		if err != nil {
			l.Errorf("Bad auction in listing: '%s'", err)
			return nil, &FetchError{URL: c.baseURL + "/auctions", Err: err}
		}
		page.Auctions = append(page.Auctions, a)
	}
	page.HasMore = f.PageSize > 0 && len(page.Auctions) == f.PageSize

	l.Debugf("Listed %d auctions", len(page.Auctions))
	return page, nil
}

// GetAuction returns the listed view of one auction
func (c *Client) GetAuction(ctx context.Context, id models.AuctionID) (*models.Auction, error) {
	path := fmt.Sprintf("/auctions/%d", id)

	var dto auctionDTO
	if err := c.get(ctx, path, nil, &dto); err != nil {
		return nil, err
	}
	a, err := dto.toModel()
	if err != nil {
		return nil, &FetchError{URL: c.baseURL + path, Err: err}
	}
	return a, nil
}

// GetAuctionBids returns the listed bids of an auction
func (c *Client) GetAuctionBids(ctx context.Context, id models.AuctionID) ([]*models.Bid, error) {
	return c.getBids(ctx, fmt.Sprintf("/auctions/%d/bids", id))
}

// GetUserBids returns the bids placed by account
func (c *Client) GetUserBids(ctx context.Context, account common.Address) ([]*models.Bid, error) {
	return c.getBids(ctx, fmt.Sprintf("/users/%s/bids", account.Hex()))
}

// GetUserAuctions returns the auctions created by account
func (c *Client) GetUserAuctions(ctx context.Context, account common.Address) ([]*models.Auction, error) {
	path := fmt.Sprintf("/users/%s/auctions", account.Hex())

	var dtos []auctionDTO
	if err := c.get(ctx, path, nil, &dtos); err != nil {
		return nil, err
	}
	auctions := make([]*models.Auction, 0, len(dtos))
	for i := range dtos {
		a, err := dtos[i].toModel()
		if err != nil {
			return nil, &FetchError{URL: c.baseURL + path, Err: err}
		}
		auctions = append(auctions, a)
	}
	return auctions, nil
}

func (c *Client) getBids(ctx context.Context, path string) ([]*models.Bid, error) {
	var dtos []bidDTO
	if err := c.get(ctx, path, nil, &dtos); err != nil {
		return nil, err
	}
	bids := make([]*models.Bid, 0, len(dtos))
	for i := range dtos {
		b, err := dtos[i].toModel()
		if err != nil {
			return nil, &FetchError{URL: c.baseURL + path, Err: err}
		}
		bids = append(bids, b)
	}
	return bids, nil
}

// get fetches path and decodes the JSON body into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	var l = logger.WithFields(logrus.Fields{
		"method":     "get",
		"param_path": path,
	})

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		l.Errorf("Listing call failed: '%s'", err)
		return &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		l.Errorf("Failed to read listing response: '%s'", err)
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: ErrNotFound}
	case resp.StatusCode != http.StatusOK:
		l.Warnf("Listing returned %d: '%s'", resp.StatusCode, string(body))
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		l.Errorf("Bad listing response: '%s'", err)
		return &FetchError{URL: u, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "decoding response")}
	}
	return nil
}
