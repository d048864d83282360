package handler

import (
    "errors"
    "fmt"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ticket-reservation/internal/repository"
)

// getUserCode extracts the resolved user code placed into the context
// by the identity middleware.  It returns an error when the request is
// unauthenticated, which handlers translate into a 401 response.
func getUserCode(c echo.Context) (string, error) {
    v := c.Get("user_code")
    code, ok := v.(string)
    if !ok || code == "" {
        return "", errors.New("missing user_code in context")
    }
    return code, nil
}

// filterRequest is the JSON shape of a generic query payload: a domain
// of [field, operator, value] triples, an order-by map and pagination.
// Limit is a pointer so an omitted limit can default while an explicit
// zero means unbounded.
type filterRequest struct {
    Domain [][]interface{}   `json:"domain"`
    Order  map[string]string `json:"order"`
    Limit  *int64            `json:"limit"`
    Offset int64             `json:"offset"`
}

// defaultQueryLimit bounds query results when the caller does not ask
// for a specific page size.
const defaultQueryLimit = 10

// bindFilter decodes and validates a filter payload.  Operators outside
// the closed set are rejected here, before any SQL is assembled;
// unknown fields are deliberately left for the translator to skip.
func bindFilter(c echo.Context) (*repository.Filter, error) {
    var req filterRequest
    if err := c.Bind(&req); err != nil {
        return nil, fmt.Errorf("invalid request body")
    }
    f := &repository.Filter{
        Order:  req.Order,
        Offset: req.Offset,
        Limit:  defaultQueryLimit,
    }
    if req.Limit != nil {
        f.Limit = *req.Limit
    }
    for _, triple := range req.Domain {
        if len(triple) != 3 {
            return nil, fmt.Errorf("domain entries must be [field, operator, value] triples")
        }
        field, ok := triple[0].(string)
        if !ok {
            return nil, fmt.Errorf("domain field must be a string")
        }
        rawOp, ok := triple[1].(string)
        if !ok {
            return nil, fmt.Errorf("domain operator must be a string")
        }
        op, err := repository.ParseOp(rawOp)
        if err != nil {
            return nil, err
        }
        f.Domain = append(f.Domain, repository.Cond{Field: field, Op: op, Value: triple[2]})
    }
    return f, nil
}
