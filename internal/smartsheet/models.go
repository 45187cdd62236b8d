package smartsheet

// Cell is a single cell returned by a row read. Value and DisplayValue are
// both populated by the API; DisplayValue carries the formatted text.
type Cell struct {
	ColumnID     int64       `json:"columnId"`
	Value        interface{} `json:"value,omitempty"`
	DisplayValue string      `json:"displayValue,omitempty"`
}

// Row is a sheet row scoped to the requested columns.
type Row struct {
	ID    int64  `json:"id"`
	Cells []Cell `json:"cells"`
}

// Webhook is the registered callback subscription on a sheet.
type Webhook struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	CallbackURL string   `json:"callbackUrl"`
	Scope       string   `json:"scope"`
	ScopeID     int64    `json:"scopeObjectId"`
	Events      []string `json:"events"`
	Version     int      `json:"version"`
	Enabled     bool     `json:"enabled"`
	Status      string   `json:"status"`
}

// User is the authenticated account returned by the connectivity probe.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type createWebhookRequest struct {
	Name        string   `json:"name"`
	CallbackURL string   `json:"callbackUrl"`
	Scope       string   `json:"scope"`
	ScopeID     int64    `json:"scopeObjectId"`
	Events      []string `json:"events"`
	Version     int      `json:"version"`
}

type updateWebhookRequest struct {
	Enabled bool `json:"enabled"`
}

type webhookResult struct {
	Result Webhook `json:"result"`
}

// StringValue returns the cell's textual value, preferring the display value.
func (c Cell) StringValue() string {
	if c.DisplayValue != "" {
		return c.DisplayValue
	}
	if text, ok := c.Value.(string); ok {
		return text
	}
	return ""
}
