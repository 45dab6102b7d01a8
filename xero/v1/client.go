package v1

type XeroClient struct {
	Transport  *Transport
	Employees  *EmployeeEndpoint
	Tracking   *TrackingEndpoint
	Timesheets *TimesheetEndpoint
}

// NewXeroClient initializes the API client
func NewXeroClient(baseURL, token, tenantID string) *XeroClient {
	t := NewTransport(baseURL, token, tenantID)
	return &XeroClient{
		Transport:  t,
		Employees:  &EmployeeEndpoint{transport: t},
		Tracking:   &TrackingEndpoint{transport: t},
		Timesheets: &TimesheetEndpoint{transport: t},
	}
}
