package pagination

import "testing"

func TestDefaults(t *testing.T) {
	tests := []struct {
		name    string
		in      PageRequest
		page    int
		perPage int
	}{
		{"empty", PageRequest{}, 1, DefaultPerPage},
		{"explicit", PageRequest{Page: 3, PerPage: 10}, 3, 10},
		{"clamped", PageRequest{Page: 1, PerPage: 1000}, 1, MaxPerPage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.in
			req.Defaults()
			if req.Page != tc.page || req.PerPage != tc.perPage {
				t.Errorf("expected %d/%d, got %d/%d", tc.page, tc.perPage, req.Page, req.PerPage)
			}
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[int](nil, 2, 50, 101)
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}
	if resp.Data == nil {
		t.Error("expected non-nil data slice")
	}

	req := PageRequest{Page: 3, PerPage: 20}
	if req.Offset() != 40 {
		t.Errorf("expected offset 40, got %d", req.Offset())
	}
}
