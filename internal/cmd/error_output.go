package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/storefront-cli/internal/api"
	"github.com/salmonumbrella/storefront-cli/internal/commenttree"
	"github.com/salmonumbrella/storefront-cli/internal/output"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

// effectiveErrorFormat resolves "auto" against the output format so that
// structured output gets structured errors.
func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		if ctx == nil {
			return "text"
		}
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), "Error:", err)
}

type errorBody struct {
	Message  string   `json:"message" yaml:"message"`
	Type     string   `json:"type" yaml:"type"`
	Category string   `json:"category" yaml:"category"`
	Details  []string `json:"details,omitempty" yaml:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error" yaml:"error"`
}

func buildErrorEnvelope(err error) errorEnvelope {
	body := errorBody{
		Message:  err.Error(),
		Type:     "error",
		Category: "system",
	}

	var (
		authErr       api.AuthenticationError
		validationErr api.ValidationError
		notFoundErr   api.NotFoundError
		rateErr       api.RateLimitError
	)
	switch {
	case errors.As(err, &authErr):
		body.Type, body.Category = "auth", "user"
	case errors.As(err, &validationErr):
		body.Type, body.Category = "validation", "user"
	case errors.As(err, &notFoundErr):
		body.Type, body.Category = "not_found", "user"
	case errors.As(err, &rateErr):
		body.Type, body.Category = "rate_limit", "system"
	case isThreadError(err):
		body.Type, body.Category = "invalid_thread", "data"
		body.Details = threadErrorDetails(err)
	}

	return errorEnvelope{Error: body}
}

func isThreadError(err error) bool {
	var (
		dupErr   *commenttree.DuplicateIDError
		selfErr  *commenttree.SelfParentError
		cycleErr *commenttree.CycleError
	)
	return errors.As(err, &dupErr) || errors.As(err, &selfErr) || errors.As(err, &cycleErr)
}

// threadErrorDetails lists every thread violation in err's tree as its own
// entry, prefixed with the product it came from.
func threadErrorDetails(err error) []string {
	var details []string
	var walk func(e error, product string)
	walk = func(e error, product string) {
		switch v := e.(type) {
		case nil:
			return
		case *productError:
			product = v.ProductID
		case *commenttree.DuplicateIDError, *commenttree.SelfParentError, *commenttree.CycleError:
			if product != "" {
				details = append(details, "product "+product+": "+e.Error())
			} else {
				details = append(details, e.Error())
			}
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, child := range u.Unwrap() {
				walk(child, product)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap(), product)
		}
	}
	walk(err, "")
	if len(details) == 0 {
		return []string{err.Error()}
	}
	return details
}
