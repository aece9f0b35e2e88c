package dataapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"aurora-dataapi/internal/typecast"
)

// Rows is a fully decoded statement result.
type Rows struct {
	Columns []string
	Fields  []typecast.Field
	Values  [][]any
	// RowsAffected is NumberOfRecordsUpdated for DML statements.
	RowsAffected int64
}

// Decode applies reg to every cell of out. Columns without metadata decode
// through the default field conversion.
func Decode(out *rdsdata.ExecuteStatementOutput, reg *typecast.Registry, opts typecast.Options) (*Rows, error) {
	if out == nil {
		return &Rows{}, nil
	}

	width := len(out.ColumnMetadata)
	for _, rec := range out.Records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	rows := &Rows{
		Columns:      make([]string, width),
		Fields:       make([]typecast.Field, width),
		Values:       make([][]any, 0, len(out.Records)),
		RowsAffected: out.NumberOfRecordsUpdated,
	}
	for i := 0; i < width; i++ {
		if i < len(out.ColumnMetadata) {
			rows.Fields[i] = fieldFromMetadata(out.ColumnMetadata[i])
		}
		if rows.Fields[i].Name == "" {
			rows.Fields[i].Name = "col_" + strconv.Itoa(i)
		}
		rows.Columns[i] = rows.Fields[i].Name
	}

	for r, rec := range out.Records {
		values := make([]any, width)
		for i, cell := range rec {
			v, err := reg.Typecast(rows.Fields[i], opts, func() (any, error) {
				return FieldValue(cell)
			})
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r, err)
			}
			values[i] = v
		}
		rows.Values = append(rows.Values, values)
	}
	return rows, nil
}

func fieldFromMetadata(md types.ColumnMetadata) typecast.Field {
	name := aws.ToString(md.Label)
	if name == "" {
		name = aws.ToString(md.Name)
	}
	return typecast.Field{
		Name:      name,
		Type:      strings.ToUpper(aws.ToString(md.TypeName)),
		Precision: int(md.Precision),
		Scale:     int(md.Scale),
		// 0 is columnNoNulls in the JDBC-style nullability flag.
		Nullable: md.Nullable != 0,
	}
}

// FieldValue is the default conversion of a Data API field to a Go value.
func FieldValue(f types.Field) (any, error) {
	switch v := f.(type) {
	case nil:
		return nil, nil
	case *types.FieldMemberIsNull:
		return nil, nil
	case *types.FieldMemberStringValue:
		return v.Value, nil
	case *types.FieldMemberLongValue:
		return v.Value, nil
	case *types.FieldMemberDoubleValue:
		return v.Value, nil
	case *types.FieldMemberBooleanValue:
		return v.Value, nil
	case *types.FieldMemberBlobValue:
		return v.Value, nil
	case *types.FieldMemberArrayValue:
		return arrayValue(v.Value)
	default:
		return nil, fmt.Errorf("unsupported field type %T", f)
	}
}

func arrayValue(a types.ArrayValue) (any, error) {
	switch v := a.(type) {
	case nil:
		return nil, nil
	case *types.ArrayValueMemberStringValues:
		return v.Value, nil
	case *types.ArrayValueMemberLongValues:
		return v.Value, nil
	case *types.ArrayValueMemberDoubleValues:
		return v.Value, nil
	case *types.ArrayValueMemberBooleanValues:
		return v.Value, nil
	case *types.ArrayValueMemberArrayValues:
		out := make([]any, 0, len(v.Value))
		for _, inner := range v.Value {
			iv, err := arrayValue(inner)
			if err != nil {
				return nil, err
			}
			out = append(out, iv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported array type %T", a)
	}
}
