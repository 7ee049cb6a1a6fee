package embedding

import (
	"fmt"
	"os"

	"github.com/openai/openai-go"
)

// Client wraps the OpenAI client used for embedding generation.
type Client struct {
	client *openai.Client
}

// NewClient creates the OpenAI client. The API key is a precondition checked
// here, before any pipeline work starts, so a misconfigured run fails before
// touching external services.
func NewClient() (*Client, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	// openai-go reads OPENAI_API_KEY from the environment
	client := openai.NewClient()

	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages
// (schema and property extraction share the same credentials).
func (c *Client) Client() *openai.Client {
	return c.client
}
