package importer

import (
	"testing"

	"github.com/rendis/flowcost/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		markers []string
		kind    schema.NodeKind
		matched bool
	}{
		{[]string{"__start__"}, schema.NodeKindStart, true},
		{[]string{"START"}, schema.NodeKindStart, true},
		{[]string{"__end__"}, schema.NodeKindFinish, true},
		{[]string{"end"}, schema.NodeKindFinish, true},
		{[]string{"tools"}, schema.NodeKindTool, true},
		{[]string{"toolNode"}, schema.NodeKindTool, true},
		{[]string{"agent"}, schema.NodeKindAgent, true},
		{[]string{"", "finishNode"}, schema.NodeKindFinish, true},
		{[]string{"researcher", "tool"}, schema.NodeKindTool, true},
		// Substrings are not markers.
		{[]string{"toolbox_agent"}, DefaultKind, false},
		{[]string{"backend"}, DefaultKind, false},
		{nil, DefaultKind, false},
	}
	for _, tt := range tests {
		kind, matched := kindOf(tt.markers...)
		assert.Equal(t, tt.kind, kind, "markers %v", tt.markers)
		assert.Equal(t, tt.matched, matched, "markers %v", tt.markers)
	}
}

func TestN8NKind(t *testing.T) {
	tests := []struct {
		nodeType string
		kind     schema.NodeKind
		matched  bool
	}{
		{"n8n-nodes-base.manualTrigger", schema.NodeKindStart, true},
		{"@n8n/n8n-nodes-langchain.chatTrigger", schema.NodeKindStart, true},
		{"@n8n/n8n-nodes-langchain.agent", schema.NodeKindAgent, true},
		{"@n8n/n8n-nodes-langchain.lmChatOpenAi", schema.NodeKindAgent, true},
		{"@n8n/n8n-nodes-langchain.chainLlm", schema.NodeKindAgent, true},
		{"@n8n/n8n-nodes-langchain.toolHttpRequest", schema.NodeKindTool, true},
		{"n8n-nodes-base.gmailTool", schema.NodeKindTool, true},
		{"@n8n/n8n-nodes-langchain.memoryBufferWindow", schema.NodeKindTool, true},
		{"@n8n/n8n-nodes-langchain.vectorStorePinecone", schema.NodeKindTool, true},
		{"n8n-nodes-base.httpRequest", schema.NodeKindTool, true},
		{"n8n-nodes-community.somethingElse", DefaultKind, false},
		{"", DefaultKind, false},
	}
	for _, tt := range tests {
		kind, matched := n8nKind(tt.nodeType)
		assert.Equal(t, tt.kind, kind, tt.nodeType)
		assert.Equal(t, tt.matched, matched, tt.nodeType)
	}
}
