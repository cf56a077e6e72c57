package grpc

import (
	"cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/resume"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"testing"
)

func TestNewReadRowsRequest(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		request  *resume.Request
		expected *bigtablepb.ReadRowsRequest
	}{
		"full table": {
			request:  &resume.Request{Table: "users", AppProfile: "batch", RowsLimit: 5, Reversed: true},
			expected: &bigtablepb.ReadRowsRequest{TableName: "users", AppProfileId: "batch", RowsLimit: 5, Reversed: true},
		},
		"keys": {
			request: &resume.Request{Table: "users", Rows: resume.RowSet{Keys: [][]byte{[]byte("a"), []byte("b")}}},
			expected: &bigtablepb.ReadRowsRequest{TableName: "users", Rows: &bigtablepb.RowSet{
				RowKeys: [][]byte{[]byte("a"), []byte("b")},
			}},
		},
		"bounds": {
			request: &resume.Request{Table: "users", Rows: resume.RowSet{Ranges: []resume.Range{
				{Start: resume.Closed("a"), End: resume.Open("c")},
				{Start: resume.Open("d"), End: resume.Closed("f")},
				{Start: resume.Open("x")},
			}}},
			expected: &bigtablepb.ReadRowsRequest{TableName: "users", Rows: &bigtablepb.RowSet{RowRanges: []*bigtablepb.RowRange{
				{
					StartKey: &bigtablepb.RowRange_StartKeyClosed{StartKeyClosed: []byte("a")},
					EndKey:   &bigtablepb.RowRange_EndKeyOpen{EndKeyOpen: []byte("c")},
				},
				{
					StartKey: &bigtablepb.RowRange_StartKeyOpen{StartKeyOpen: []byte("d")},
					EndKey:   &bigtablepb.RowRange_EndKeyClosed{EndKeyClosed: []byte("f")},
				},
				{StartKey: &bigtablepb.RowRange_StartKeyOpen{StartKeyOpen: []byte("x")}},
			}}},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got := NewReadRowsRequest(tc.request)
			req.True(proto.Equal(tc.expected, got), "got %v", got)
			req.Equal(tc.request, requestFromProto(got))
		})
	}
}

func TestRequestFromProto_TableName(t *testing.T) {
	req := require.New(t)
	got := requestFromProto(&bigtablepb.ReadRowsRequest{TableName: "projects/p/instances/i/tables/users"})
	req.Equal("users", got.Table)
	req.True(got.Rows.All())

	// an unbounded range selects every row
	got = requestFromProto(&bigtablepb.ReadRowsRequest{TableName: "users", Rows: &bigtablepb.RowSet{
		RowRanges: []*bigtablepb.RowRange{{}},
	}})
	req.Equal([]resume.Range{{}}, got.Rows.Ranges)
	req.True(got.Rows.Contains([]byte("anything")))
}

func TestResponseToProto(t *testing.T) {
	req := require.New(t)
	resp := &chunk.Response{
		Chunks: []*chunk.Chunk{
			{
				RowKey:          []byte("r1"),
				FamilyName:      chunk.FamilyName(""),
				Qualifier:       chunk.QualifierName(""),
				TimestampMicros: 10,
				Labels:          []string{"l"},
				Value:           []byte("ab"),
				ValueSize:       4,
			},
			{Value: []byte("cd"), CommitRow: true},
			{RowKey: []byte("r2"), FamilyName: chunk.FamilyName("f"), Qualifier: chunk.QualifierName("q")},
			{ResetRow: true, CommitRow: true},
		},
		LastScannedRowKey: []byte("r9"),
	}

	wire := responseToProto(resp)
	req.Len(wire.Chunks, 4)
	req.Equal([]byte("r9"), wire.LastScannedRowKey)
	req.True(proto.Equal(wrapperspb.String(""), wire.Chunks[0].FamilyName))
	req.True(proto.Equal(wrapperspb.Bytes(nil), wire.Chunks[0].Qualifier))
	req.Nil(wire.Chunks[0].RowStatus)
	req.True(wire.Chunks[1].GetCommitRow())
	req.Nil(wire.Chunks[1].FamilyName)
	req.True(wire.Chunks[3].GetResetRow())
	req.False(wire.Chunks[3].GetCommitRow())

	back := responseFromProto(wire)
	req.Equal(resp.Chunks[:3], back.Chunks[:3])
	req.Equal(&chunk.Chunk{ResetRow: true}, back.Chunks[3])
	req.Equal(resp.LastScannedRowKey, back.LastScannedRowKey)
}
