// Package engine is the facade over the card catalog tiers. It resolves
// detail lookups hot to warm to cold, promotes rows to permanence, runs index
// searches, and sweeps expired cache rows. Collaborating services interact
// with the catalog exclusively through this package.
package engine
