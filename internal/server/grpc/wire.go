package grpc

import (
	"cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"context"
	"github.com/litetable/litetable-readrows/internal/chunk"
	"github.com/litetable/litetable-readrows/internal/resume"
	"strings"
)

// tablesSegment separates the instance path from the table id in a full table name.
const tablesSegment = "/tables/"

// responseSender is the part of a ReadRows server stream the handler writes to.
type responseSender interface {
	Send(*bigtablepb.ReadRowsResponse) error
	Context() context.Context
}

// NewReadRowsRequest converts req to its wire form. Empty bounds are left unset.
func NewReadRowsRequest(req *resume.Request) *bigtablepb.ReadRowsRequest {
	out := &bigtablepb.ReadRowsRequest{
		TableName:    req.Table,
		AppProfileId: req.AppProfile,
		RowsLimit:    req.RowsLimit,
		Reversed:     req.Reversed,
	}
	if req.Rows.All() {
		return out
	}

	out.Rows = &bigtablepb.RowSet{RowKeys: req.Rows.Keys}
	for _, r := range req.Rows.Ranges {
		rr := &bigtablepb.RowRange{}
		switch {
		case len(r.Start.Key) == 0:
		case r.Start.Inclusive:
			rr.StartKey = &bigtablepb.RowRange_StartKeyClosed{StartKeyClosed: r.Start.Key}
		default:
			rr.StartKey = &bigtablepb.RowRange_StartKeyOpen{StartKeyOpen: r.Start.Key}
		}
		switch {
		case len(r.End.Key) == 0:
		case r.End.Inclusive:
			rr.EndKey = &bigtablepb.RowRange_EndKeyClosed{EndKeyClosed: r.End.Key}
		default:
			rr.EndKey = &bigtablepb.RowRange_EndKeyOpen{EndKeyOpen: r.End.Key}
		}
		out.Rows.RowRanges = append(out.Rows.RowRanges, rr)
	}
	return out
}

// requestFromProto is the inverse of NewReadRowsRequest. A full table name such as
// "projects/p/instances/i/tables/users" is reduced to its table id.
func requestFromProto(in *bigtablepb.ReadRowsRequest) *resume.Request {
	req := &resume.Request{
		Table:      tableID(in.GetTableName()),
		AppProfile: in.GetAppProfileId(),
		RowsLimit:  in.GetRowsLimit(),
		Reversed:   in.GetReversed(),
	}
	req.Rows.Keys = in.GetRows().GetRowKeys()
	for _, rr := range in.GetRows().GetRowRanges() {
		var r resume.Range
		switch k := rr.GetStartKey().(type) {
		case *bigtablepb.RowRange_StartKeyClosed:
			r.Start = resume.Bound{Key: k.StartKeyClosed, Inclusive: true}
		case *bigtablepb.RowRange_StartKeyOpen:
			r.Start = resume.Bound{Key: k.StartKeyOpen}
		}
		switch k := rr.GetEndKey().(type) {
		case *bigtablepb.RowRange_EndKeyClosed:
			r.End = resume.Bound{Key: k.EndKeyClosed, Inclusive: true}
		case *bigtablepb.RowRange_EndKeyOpen:
			r.End = resume.Bound{Key: k.EndKeyOpen}
		}
		req.Rows.Ranges = append(req.Rows.Ranges, r)
	}
	return req
}

func tableID(name string) string {
	if i := strings.LastIndex(name, tablesSegment); i >= 0 {
		return name[i+len(tablesSegment):]
	}
	return name
}

// responseToProto converts a response to its wire form. A chunk can only carry one row
// status, so a reset takes precedence over a commit.
func responseToProto(resp *chunk.Response) *bigtablepb.ReadRowsResponse {
	out := &bigtablepb.ReadRowsResponse{
		Chunks:            make([]*bigtablepb.ReadRowsResponse_CellChunk, 0, len(resp.Chunks)),
		LastScannedRowKey: resp.LastScannedRowKey,
	}
	for _, c := range resp.Chunks {
		cc := &bigtablepb.ReadRowsResponse_CellChunk{
			RowKey:          c.RowKey,
			FamilyName:      c.FamilyName,
			Qualifier:       c.Qualifier,
			TimestampMicros: c.TimestampMicros,
			Labels:          c.Labels,
			Value:           c.Value,
			ValueSize:       c.ValueSize,
		}
		switch {
		case c.ResetRow:
			cc.RowStatus = &bigtablepb.ReadRowsResponse_CellChunk_ResetRow{ResetRow: true}
		case c.CommitRow:
			cc.RowStatus = &bigtablepb.ReadRowsResponse_CellChunk_CommitRow{CommitRow: true}
		}
		out.Chunks = append(out.Chunks, cc)
	}
	return out
}

func responseFromProto(in *bigtablepb.ReadRowsResponse) *chunk.Response {
	out := &chunk.Response{
		Chunks:            make([]*chunk.Chunk, 0, len(in.GetChunks())),
		LastScannedRowKey: in.GetLastScannedRowKey(),
	}
	for _, cc := range in.GetChunks() {
		out.Chunks = append(out.Chunks, &chunk.Chunk{
			RowKey:          cc.GetRowKey(),
			FamilyName:      cc.GetFamilyName(),
			Qualifier:       cc.GetQualifier(),
			TimestampMicros: cc.GetTimestampMicros(),
			Labels:          cc.GetLabels(),
			Value:           cc.GetValue(),
			ValueSize:       cc.GetValueSize(),
			ResetRow:        cc.GetResetRow(),
			CommitRow:       cc.GetCommitRow(),
		})
	}
	return out
}
