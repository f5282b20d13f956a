// Package bootstrap seeds the card search index from the catalog's bulk data
// dump. The loader is idempotent: it checks the index against a validity
// threshold, and only downloads and repopulates when the index is missing or
// undersized (or when a refresh is forced). Failures never crash the host
// process; they come back as structured results.
package bootstrap
