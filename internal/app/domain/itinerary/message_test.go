package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustmentMessage(t *testing.T) {
	tests := []struct {
		lang   string
		action Action
		want   string
	}{
		{"", ActionDelete, "已从行程中删除「天坛」。"},
		{"zh-CN", ActionAdd, "已将「天坛」添加到行程中。"},
		{"zh", ActionOptimize, "已从「天坛」出发重新优化路线。"},
		{"en-US,en;q=0.9", ActionEdit, "Updated the details of 天坛."},
		{"en", ActionMove, "Moved 天坛 and recalculated the schedule."},
		{"fr-FR", ActionDelete, "已从行程中删除「天坛」。"},
		{"en", Action("rename"), "The itinerary has been updated."},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustmentMessage(tt.lang, tt.action, "天坛"))
		})
	}
}
