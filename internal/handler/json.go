package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/order"
)

const maxBodyBytes = 1 << 20

var errInvalidJSON = apperr.Validation("Request body must be a JSON object.")

func writeJSON(w http.ResponseWriter, code int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Bytes())))
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(code)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// fail maps err to a response by category. Only errors outside the client
// categories are logged as failures.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		lg    = zctx.From(r.Context())
		stock *order.InsufficientStockError
		code  int
	)
	switch {
	case errors.Is(err, apperr.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &stock):
		code = http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		code = http.StatusConflict
	default:
		lg.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	lg.Debug("Request rejected", zap.Int("status", code), zap.String("reason", err.Error()))
	writeError(w, code, clientMessage(err))
}

// clientMessage unwraps to the outermost error that carries a client-facing
// message.
func clientMessage(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch e.(type) {
		case *apperr.ValidationError, *apperr.NotFoundError, *apperr.DuplicateError,
			*order.InvalidItemError, *order.ProductNotFoundError,
			*order.InsufficientStockError, *order.InvalidStatusError:
			return e.Error()
		}
	}
	return err.Error()
}

// decodeObject reads the request body as a JSON object, calling field for
// every key.
func decodeObject(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body is too large.")
		}
		return errors.Wrap(err, "read body")
	}

	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return errInvalidJSON
	}
	if err := d.Obj(field); err != nil {
		var verr *apperr.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return errInvalidJSON
	}
	return nil
}

// decodeString accepts a string or null; other types are skipped as absent.
func decodeString(d *jx.Decoder) (string, bool, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		return s, err == nil, err
	case jx.Null:
		return "", false, d.Null()
	default:
		return "", false, d.Skip()
	}
}

// decodeInt accepts an integral JSON number. Fractional numbers and other
// types are reported as not ok.
func decodeInt(d *jx.Decoder) (int, bool, error) {
	if d.Next() != jx.Number {
		return 0, false, d.Skip()
	}
	n, err := d.Num()
	if err != nil {
		return 0, false, err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil || !v.IsInteger() || !v.BigInt().IsInt64() {
		return 0, false, nil
	}
	i := v.IntPart()
	if int64(int(i)) != i {
		return 0, false, nil
	}
	return int(i), true, nil
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder, field string) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	default:
		if err := d.Skip(); err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, apperr.Validation(field + " must be a number")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation(field + " must be a number")
	}
	return v, nil
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.String()))
}

// encodeTime writes t as UTC ISO 8601 with millisecond precision.
func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}
