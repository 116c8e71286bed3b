package core

import "github.com/minio/highwayhash"

// fingerprintKey is fixed so fingerprints are comparable across restarts.
var fingerprintKey = []byte("merger-source-fingerprint-key-32")

// Fingerprint returns a 64-bit content hash of an uploaded file.
func Fingerprint(data []byte) uint64 {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		// Only possible with a key that is not 32 bytes long.
		panic(err)
	}
	_, _ = h.Write(data)
	return h.Sum64()
}
