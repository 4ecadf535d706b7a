package importer

import (
	"testing"
)

func TestGetTotalPages(t *testing.T) {
	type args struct {
		totalCount int64
		limit      int64
	}
	tests := []struct {
		name string
		args args
		want int64
	}{
		{
			name: "exact fit",
			args: args{totalCount: 10, limit: 10},
			want: 1,
		},
		{
			name: "two pages",
			args: args{totalCount: 10, limit: 5},
			want: 2,
		},
		{
			name: "partial last page",
			args: args{totalCount: 10, limit: 3},
			want: 4,
		},
		{
			name: "zero limit",
			args: args{totalCount: 10, limit: 0},
			want: 0,
		},
		{
			name: "no rows",
			args: args{totalCount: 0, limit: 10},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getTotalPages(tt.args.totalCount, tt.args.limit); got != tt.want {
				t.Errorf("getTotalPages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrepPaginationInfos(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		info := prepPaginationInfos(100, 0, 0)
		if info.CurrentPage != 1 || info.PageSize != 20 {
			t.Errorf("unexpected defaults: %+v", info)
		}
	})
	t.Run("page clamped to last page", func(t *testing.T) {
		info := prepPaginationInfos(10, 5, 5)
		if info.CurrentPage != 2 {
			t.Errorf("expected page clamped to 2, got %+v", info)
		}
	})
}
