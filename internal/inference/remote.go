package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/shipment-importer/internal/domain"
	"github.com/ignite/shipment-importer/internal/lookup"
	"github.com/ignite/shipment-importer/internal/pkg/httpretry"
)

// Remote asks an HTTP service to geocode an address.
type Remote struct {
	client httpretry.HTTPDoer
	url    string
}

// NewRemote returns a Remote inferrer posting to url through client.
func NewRemote(client httpretry.HTTPDoer, url string) *Remote {
	return &Remote{client: client, url: url}
}

type remoteRequest struct {
	Address string `json:"address"`
}

type remoteResponse struct {
	DepartmentID   *int     `json:"department_id"`
	LocalityID     *int     `json:"locality_id"`
	LocalityManual *string  `json:"locality_manual"`
	DeliveryType   string   `json:"delivery_type"`
	Warnings       []string `json:"warnings"`
}

// Infer posts the address and validates returned ids against idx; ids the
// snapshot does not know are dropped with a warning.
func (r *Remote) Infer(ctx context.Context, address string, idx *lookup.Index) (*Result, error) {
	body, err := json.Marshal(remoteRequest{Address: address})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("inference: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("inference: decode response: %w", err)
	}

	res := &Result{Warnings: out.Warnings}
	if out.LocalityManual != nil {
		if manual := strings.TrimSpace(*out.LocalityManual); manual != "" {
			res.LocalityManual = &manual
		}
	}
	if out.DeliveryType != "" {
		res.DeliveryType = domain.ParseDeliveryType(out.DeliveryType)
	}
	if out.DepartmentID != nil {
		if _, ok := idx.DepartmentByID(*out.DepartmentID); ok {
			res.DepartmentID = out.DepartmentID
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("inferred department %d is unknown", *out.DepartmentID))
		}
	}
	if out.LocalityID != nil {
		if loc, ok := idx.LocalityByID(*out.LocalityID); ok {
			res.LocalityID = out.LocalityID
			if res.DepartmentID == nil {
				res.DepartmentID = &loc.DepartmentID
			}
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("inferred locality %d is unknown", *out.LocalityID))
		}
	}
	return res, nil
}
