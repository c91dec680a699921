/*
Core documents how the execution pipeline is composed.

# Module
  - gateway: validates incoming orders against the latest quote, expands
    grouped orders, and routes admissible ones
  - store: per-account ledgers and resting books behind one boundary,
    optionally decorated with write-behind persistence
  - engine: trigger evaluation and fill pricing against quotes
  - ledger: position netting, realized transactions, and the audit log

# Source
 1. orders and cancels from callers of the gateway
 2. quote ticks from the simulator or a market data feed
 3. journal replay from the replay tool

# Produce
  - fills, positions, and realized transactions per account
  - audit journal segments for rebuild and verification

# Sharded
  - account: all mutation is serialized per account ledger
*/
package core
