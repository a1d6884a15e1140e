package models

import (
	"encoding/json"
	"fmt"
)

// WebSocket message types exchanged with the analysis service.

const (
	MsgConnected = "connected"
	MsgProgress  = "progress"
	MsgChunk     = "chunk"
	MsgComplete  = "complete"
	MsgError     = "error"
	MsgSubscribe = "subscribe"
)

type SubscribeMessage struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
}

type ConnectedMessage struct {
	JobID string `json:"jobId"`
}

type ProgressMessage struct {
	Status   AnalysisStatus `json:"status"`
	Progress int            `json:"progress"`
	Message  string         `json:"message"`
}

type ChunkMessage struct {
	Timestamp float64         `json:"timestamp"`
	Segment   AnalysisSegment `json:"segment"`
}

type CompleteMessage struct {
	Analysis SongAnalysis `json:"analysis"`
}

type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServerMessage is the decoded form of one inbound frame. Exactly one of the
// payload fields is non-nil, matching Type.
type ServerMessage struct {
	Type      string
	Connected *ConnectedMessage
	Progress  *ProgressMessage
	Chunk     *ChunkMessage
	Complete  *CompleteMessage
	Error     *ErrorMessage
}

// DecodeServerMessage parses one raw frame into its typed payload.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ServerMessage{}, fmt.Errorf("malformed message: %w", err)
	}

	msg := ServerMessage{Type: envelope.Type}
	switch envelope.Type {
	case MsgConnected:
		msg.Connected = &ConnectedMessage{}
		return msg, json.Unmarshal(data, msg.Connected)
	case MsgProgress:
		msg.Progress = &ProgressMessage{}
		return msg, json.Unmarshal(data, msg.Progress)
	case MsgChunk:
		msg.Chunk = &ChunkMessage{}
		return msg, json.Unmarshal(data, msg.Chunk)
	case MsgComplete:
		msg.Complete = &CompleteMessage{}
		return msg, json.Unmarshal(data, msg.Complete)
	case MsgError:
		msg.Error = &ErrorMessage{}
		return msg, json.Unmarshal(data, msg.Error)
	default:
		return msg, fmt.Errorf("unknown message type %q", envelope.Type)
	}
}
