package domain

// GroupCount is one bucket of a group-by query. Key holds the grouped value.
type GroupCount struct {
	Key   string
	Count int64
}

// Analytics is the dashboard summary over the whole lead collection.
type Analytics struct {
	TotalLeads     int64
	NewLeads       int64
	ContactedLeads int64
	ConvertedLeads int64
	ConversionRate float64
	RecentLeads    int64
	LeadsBySource  []GroupCount
	LeadsByStatus  []GroupCount
}
