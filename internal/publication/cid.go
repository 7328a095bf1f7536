package publication

import (
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"gopkg.in/yaml.v3"

	"github.com/seedit/seedit-challenge/internal/errors"
)

// ErrEmptyCID is returned by ValidateCID for an empty string.
var ErrEmptyCID = errors.New("empty cid")

// ValidateCID reports whether s decodes as an IPFS content identifier.
func ValidateCID(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyCID
	}
	if _, err := cid.Decode(s); err != nil {
		return errors.Wrapf(err, "decode cid %q", s)
	}
	return nil
}

// ContentCID derives a CIDv1 for p from the sha2-256 digest of its YAML
// encoding. The simulator assigns it once a publication is accepted.
func ContentCID(p *Publication) (string, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", errors.Wrap(err, "encode publication")
	}
	digest, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", errors.Wrap(err, "hash publication")
	}
	return cid.NewCidV1(cid.Raw, digest).String(), nil
}

// ShortCID returns the 12 characters shown in place of a full cid. The
// multibase and version prefix is skipped.
func ShortCID(s string) string {
	if len(s) < 14 {
		return s
	}
	return s[2:14]
}

// addressPrefixLen is the length of the shared libp2p peer id prefix
// ("12D3KooW") skipped by ShortAddress.
const addressPrefixLen = 8

// ShortAddress abbreviates a community or author address for display.
// Domain names are returned unchanged; peer ids lose their common prefix
// and are cut to 12 characters.
func ShortAddress(address string) string {
	if address == "" || strings.Contains(address, ".") {
		return address
	}
	if len(address) <= addressPrefixLen {
		return address
	}
	short := address[addressPrefixLen:]
	if len(short) > 12 {
		short = short[:12]
	}
	return short
}
