package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideBoard(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		facts    Facts
		expected Decision
	}{
		{
			name:     "missing board is not found for everyone",
			op:       OpRead,
			facts:    Facts{Exists: false, IsOwner: true, IsMember: true},
			expected: NotFound,
		},
		{
			name:     "owner reads",
			op:       OpRead,
			facts:    Facts{Exists: true, IsOwner: true},
			expected: Allow,
		},
		{
			name:     "member reads",
			op:       OpRead,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Allow,
		},
		{
			name:     "outsider read is forbidden, not hidden",
			op:       OpRead,
			facts:    Facts{Exists: true},
			expected: Forbidden,
		},
		{
			name:     "owner updates",
			op:       OpUpdate,
			facts:    Facts{Exists: true, IsOwner: true},
			expected: Allow,
		},
		{
			name:     "member cannot update",
			op:       OpUpdate,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Forbidden,
		},
		{
			name:     "member cannot delete",
			op:       OpDelete,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Forbidden,
		},
		{
			name:     "owner deletes",
			op:       OpDelete,
			facts:    Facts{Exists: true, IsOwner: true},
			expected: Allow,
		},
		{
			name:     "member cannot manage members",
			op:       OpManageMembers,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Forbidden,
		},
		{
			name:     "owner manages members",
			op:       OpManageMembers,
			facts:    Facts{Exists: true, IsOwner: true},
			expected: Allow,
		},
		{
			name:     "missing board update is not found before forbidden",
			op:       OpUpdate,
			facts:    Facts{Exists: false},
			expected: NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecideBoard(tt.op, tt.facts))
		})
	}
}

func TestDecideTask(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		facts    Facts
		expected Decision
	}{
		{
			name:     "missing task is not found",
			op:       OpRead,
			facts:    Facts{Exists: false},
			expected: NotFound,
		},
		{
			name:     "owner reads",
			op:       OpRead,
			facts:    Facts{Exists: true, IsOwner: true},
			expected: Allow,
		},
		{
			name:     "member updates",
			op:       OpUpdate,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Allow,
		},
		{
			name:     "member deletes",
			op:       OpDelete,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Allow,
		},
		{
			name:     "member creates",
			op:       OpCreate,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Allow,
		},
		{
			name:     "outsider is forbidden on every op",
			op:       OpDelete,
			facts:    Facts{Exists: true},
			expected: Forbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecideTask(tt.op, tt.facts))
		})
	}
}

func TestDecideComment(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		facts    Facts
		expected Decision
	}{
		{
			name:     "missing comment is not found",
			op:       OpDelete,
			facts:    Facts{Exists: false, IsAuthor: true},
			expected: NotFound,
		},
		{
			name:     "member reads",
			op:       OpRead,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Allow,
		},
		{
			name:     "member creates",
			op:       OpCreate,
			facts:    Facts{Exists: true, IsMember: true},
			expected: Allow,
		},
		{
			name:     "author deletes",
			op:       OpDelete,
			facts:    Facts{Exists: true, IsAuthor: true},
			expected: Allow,
		},
		{
			name:     "board owner cannot delete another author's comment",
			op:       OpDelete,
			facts:    Facts{Exists: true, IsOwner: true, IsMember: true},
			expected: Forbidden,
		},
		{
			name:     "outsider read is forbidden",
			op:       OpRead,
			facts:    Facts{Exists: true},
			expected: Forbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecideComment(tt.op, tt.facts))
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "forbidden", Forbidden.String())
	assert.Equal(t, "unknown", Decision(99).String())
}
