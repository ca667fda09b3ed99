package submissions

import (
	"fmt"
	"strings"

	hashids "github.com/speps/go-hashids/v2"
)

// RefCodeGenerator turns submission row IDs into short public codes
// (SUB-XXXXXXXX) so submitters can quote a reference without the API
// exposing raw database IDs.
type RefCodeGenerator struct {
	h *hashids.HashID
}

func NewRefCodeGenerator(salt string) (*RefCodeGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init refcode generator: %w", err)
	}
	return &RefCodeGenerator{h: h}, nil
}

func (g *RefCodeGenerator) Generate(id int64) (string, error) {
	code, err := g.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("encode refcode: %w", err)
	}
	return "SUB-" + code, nil
}

// Decode recovers the submission ID from a public code.
func (g *RefCodeGenerator) Decode(code string) (int64, error) {
	code = strings.TrimPrefix(code, "SUB-")
	ids, err := g.h.DecodeInt64WithError(code)
	if err != nil || len(ids) != 1 {
		return 0, fmt.Errorf("invalid refcode %q", code)
	}
	return ids[0], nil
}
