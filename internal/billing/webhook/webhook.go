// Package webhook authenticates and decodes payment service callbacks.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"atelier/internal/billing/models"
	id "atelier/pkg/domain"
)

const (
	SignatureHeader  = "X-Signature"
	DefaultTolerance = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrMalformed        = errors.New("malformed signature header")
	ErrStale            = errors.New("signature timestamp outside tolerance")
	ErrMismatch         = errors.New("signature mismatch")
)

// Verifier checks "t=<unix>,v1=<hex hmac-sha256(secret, t.body)>" headers.
// Several v1 entries may be present during secret rotation.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: []byte(secret), tolerance: tolerance}, nil
}

func (v *Verifier) Verify(header string, body []byte, now time.Time) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}
	var (
		ts         int64
		haveTS     bool
		signatures [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return ErrMalformed
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return ErrMalformed
			}
			ts, haveTS = n, true
		case "v1":
			sig, err := hex.DecodeString(val)
			if err != nil {
				return ErrMalformed
			}
			signatures = append(signatures, sig)
		}
	}
	if !haveTS || len(signatures) == 0 {
		return ErrMalformed
	}

	signedAt := time.Unix(ts, 0)
	if d := now.Sub(signedAt); d > v.tolerance || d < -v.tolerance {
		return ErrStale
	}

	expected := mac(v.secret, ts, body)
	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return ErrMismatch
}

// Sign builds a header for body. The payment service does this on its side;
// we use it for local tooling and tests.
func Sign(secret string, at time.Time, body []byte) string {
	ts := at.Unix()
	return "t=" + strconv.FormatInt(ts, 10) + ",v1=" + hex.EncodeToString(mac([]byte(secret), ts, body))
}

func mac(secret []byte, ts int64, body []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte("."))
	h.Write(body)
	return h.Sum(nil)
}

// ParseEvent extracts the fields billing acts on. The user and product come
// from the metadata attached at checkout.
func ParseEvent(body []byte) (*models.Event, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("event is not valid JSON")
	}
	doc := gjson.ParseBytes(body)

	ev := &models.Event{
		ID:   doc.Get("id").String(),
		Type: models.EventType(doc.Get("type").String()),
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, errors.New("event id and type are required")
	}
	if created := doc.Get("created"); created.Exists() {
		ev.Created = time.Unix(created.Int(), 0).UTC()
	}

	obj := doc.Get("data.object")
	if raw := obj.Get("metadata.user_id").String(); raw != "" {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return nil, err
		}
		ev.UserID = userID
	}
	ev.ProductID = obj.Get("metadata.product_id").String()
	ev.Tier = id.Tier(strings.ToLower(obj.Get("metadata.tier").String()))
	ev.Status = strings.ToLower(obj.Get("status").String())
	if end := obj.Get("current_period_end"); end.Exists() && end.Int() > 0 {
		t := time.Unix(end.Int(), 0).UTC()
		ev.PeriodEnd = &t
	}
	return ev, nil
}
