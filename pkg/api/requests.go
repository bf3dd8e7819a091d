package api

import (
	"net/url"
	"strconv"

	"github.com/codeready-toolchain/datamask/pkg/datasource"
)

// limitParam is the reserved query parameter for result limits. Every other
// query parameter is a filter (records) or is forwarded (upstream).
const limitParam = "limit"

// maxMaskBodyBytes bounds the body accepted by POST /api/v1/mask.
const maxMaskBodyBytes = 1 << 20

// parseLimit reads ?limit=N. A missing value yields 0.
func parseLimit(query url.Values) (int, error) {
	raw := query.Get(limitParam)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, datasource.NewValidationError(limitParam, "must be an integer")
	}
	if n < 0 {
		return 0, datasource.NewValidationError(limitParam, "must not be negative")
	}
	return n, nil
}

// otherParams returns every query parameter except limit, first value only.
func otherParams(query url.Values) map[string]string {
	out := make(map[string]string, len(query))
	for k, vs := range query {
		if k == limitParam || len(vs) == 0 {
			continue
		}
		out[k] = vs[0]
	}
	return out
}
