package models

// ChartWidget is the configuration handed to the embedded chart widget.
// Field names follow the widget's own option keys.
type ChartWidget struct {
	Symbol           string    `json:"-"`
	TVSymbol         string    `json:"symbol"`
	Interval         TimeFrame `json:"interval"`
	Timezone         string    `json:"timezone"`
	Theme            string    `json:"theme"`
	Style            string    `json:"style"`
	Locale           string    `json:"locale"`
	ToolbarBG        string    `json:"toolbar_bg"`
	Autosize         bool      `json:"autosize"`
	EnablePublishing bool      `json:"enable_publishing"`
	HideTopToolbar   bool      `json:"hide_top_toolbar"`
	HideSideToolbar  bool      `json:"hide_side_toolbar"`
	AllowSymbolSwap  bool      `json:"allow_symbol_change"`
	SaveImage        bool      `json:"save_image"`
	ContainerID      string    `json:"container_id"`
	Studies          []string  `json:"studies"`
	DisabledFeatures []string  `json:"disabled_features"`
	EnabledFeatures  []string  `json:"enabled_features"`
}

// DashboardCard pairs a scanned stock with its chart configuration
type DashboardCard struct {
	Stock  Stock       `json:"stock"`
	Widget ChartWidget `json:"widget"`
}

// Dashboard is the response to a scan
type Dashboard struct {
	Interval TimeFrame       `json:"interval"`
	Count    int             `json:"count"`
	Cards    []DashboardCard `json:"cards"`
}

// Usage levels reported in UsageSnapshot
const (
	UsageLevelNormal   = "normal"
	UsageLevelWarning  = "warning"
	UsageLevelCritical = "critical"
)

// UsageSnapshot is the advisory remote-call usage against the daily quota
type UsageSnapshot struct {
	Count      int    `json:"count"`
	DailyQuota int    `json:"daily_quota"`
	Remaining  int    `json:"remaining"`
	Level      string `json:"level"`
}
