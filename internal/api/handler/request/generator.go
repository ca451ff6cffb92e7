package request

import (
	"codegen/internal/gen"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const maxFormMemory = 8 << 20

// GenAll optionally overrides the configured model attributes of a bulk run
type GenAll struct {
	Ns        string `json:"ns" validate:"omitempty,max=200"`
	BaseClass string `json:"baseClass" validate:"omitempty,max=200"`
	QueryNs   string `json:"queryNs" validate:"omitempty,max=200"`
}

// ParseParams reads the submitted generator form from the request body.
// JSON, url-encoded and multipart bodies are accepted; a request without a
// body yields empty params.
func ParseParams(c *gin.Context) (*gen.Params, error) {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return gen.NewParams(), nil
	}

	switch c.ContentType() {
	case binding.MIMEJSON:
		raw, err := c.GetRawData()
		if err != nil {
			return nil, fmt.Errorf("unable to read body: %w", err)
		}
		if len(raw) == 0 {
			return gen.NewParams(), nil
		}
		body := make(map[string]any)
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return gen.ParamsFromJSON(body), nil
	case binding.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
		return gen.ParamsFromValues(url.Values(c.Request.MultipartForm.Value)), nil
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		return gen.ParamsFromValues(c.Request.PostForm), nil
	}
}
