package chain

// AuctionABI is the ABI of the auction contract, restricted to what the client uses
const AuctionABI = `[
  {"type":"function","name":"placeSealedBid","stateMutability":"payable","inputs":[
    {"name":"auctionId","type":"uint256"},
    {"name":"encryptedAmount","type":"bytes32"},
    {"name":"inputProof","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"placeBid","stateMutability":"payable","inputs":[
    {"name":"auctionId","type":"uint256"},
    {"name":"amount","type":"uint256"},
    {"name":"quantity","type":"uint32"}],"outputs":[]},
  {"type":"function","name":"revealBid","stateMutability":"nonpayable","inputs":[
    {"name":"auctionId","type":"uint256"},
    {"name":"bidId","type":"uint256"},
    {"name":"amount","type":"uint64"},
    {"name":"nonce","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"createAuction","stateMutability":"nonpayable","inputs":[
    {"name":"mechanism","type":"uint8"},
    {"name":"tokenContract","type":"address"},
    {"name":"tokenId","type":"uint256"},
    {"name":"startingPrice","type":"uint256"},
    {"name":"minDeposit","type":"uint256"},
    {"name":"priceDecrement","type":"uint256"},
    {"name":"decrementInterval","type":"uint64"},
    {"name":"startTime","type":"uint64"},
    {"name":"endTime","type":"uint64"},
    {"name":"revealDeadline","type":"uint64"},
    {"name":"supply","type":"uint32"},
    {"name":"minBidPerUnit","type":"uint256"},
    {"name":"encryptedReserve","type":"bytes32"},
    {"name":"inputProof","type":"bytes"}],"outputs":[
    {"name":"auctionId","type":"uint256"}]},
  {"type":"function","name":"cancelAuction","stateMutability":"nonpayable","inputs":[
    {"name":"auctionId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"revealWinner","stateMutability":"nonpayable","inputs":[
    {"name":"auctionId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"claimItem","stateMutability":"nonpayable","inputs":[
    {"name":"auctionId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"claimRefund","stateMutability":"nonpayable","inputs":[
    {"name":"auctionId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"auctionCount","stateMutability":"view","inputs":[],"outputs":[
    {"name":"","type":"uint256"}]},
  {"type":"function","name":"getAuction","stateMutability":"view","inputs":[
    {"name":"auctionId","type":"uint256"}],"outputs":[
    {"name":"seller","type":"address"},
    {"name":"mechanism","type":"uint8"},
    {"name":"tokenContract","type":"address"},
    {"name":"tokenId","type":"uint256"},
    {"name":"startingPrice","type":"uint256"},
    {"name":"reservePrice","type":"uint256"},
    {"name":"currentPrice","type":"uint256"},
    {"name":"minDeposit","type":"uint256"},
    {"name":"priceDecrement","type":"uint256"},
    {"name":"decrementInterval","type":"uint64"},
    {"name":"startTime","type":"uint64"},
    {"name":"endTime","type":"uint64"},
    {"name":"revealDeadline","type":"uint64"},
    {"name":"totalBids","type":"uint32"},
    {"name":"uniqueBidders","type":"uint32"},
    {"name":"highestBidder","type":"address"},
    {"name":"winningAmount","type":"uint256"},
    {"name":"settled","type":"bool"},
    {"name":"cancelled","type":"bool"},
    {"name":"itemClaimed","type":"bool"},
    {"name":"supply","type":"uint32"},
    {"name":"minBidPerUnit","type":"uint256"}]},
  {"type":"event","name":"BidPlaced","anonymous":false,"inputs":[
    {"name":"auctionId","type":"uint256","indexed":true},
    {"name":"bidder","type":"address","indexed":true},
    {"name":"bidId","type":"uint256","indexed":false},
    {"name":"encryptedAmount","type":"bytes32","indexed":false},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"quantity","type":"uint32","indexed":false},
    {"name":"timestamp","type":"uint64","indexed":false}]},
  {"type":"event","name":"BidRevealed","anonymous":false,"inputs":[
    {"name":"auctionId","type":"uint256","indexed":true},
    {"name":"bidId","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]}
]`
