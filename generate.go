//go:generate abigen --abi contracts/abi/MessagesLane.json --type MessagesLane --pkg contracts --out contracts/lanes.go

package main
