package store

import "strings"

// storagePathPrefix is the internal storage path the server leaks into raw
// certificate URLs. Display paths must not contain it.
const storagePathPrefix = "/app/public/storage/"

// NormalizeCertificateUrl converts a raw server certificate URL into its
// display form: the internal storage prefix is stripped and a duplicated
// trailing ".pdf.pdf" extension is collapsed to a single ".pdf". The
// function is idempotent; normalizing an already-normalized URL returns it
// unchanged.
func NormalizeCertificateUrl(raw string) string {
	url := strings.TrimPrefix(raw, storagePathPrefix)
	for strings.HasSuffix(url, ".pdf.pdf") {
		url = strings.TrimSuffix(url, ".pdf")
	}
	return url
}
