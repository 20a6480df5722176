package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeftJoin_PreservesLeftRowsAndOrder(t *testing.T) {
	loans := MustNew("loans", "Loan_ID", "EMI_Amount")
	mustAppend(t, loans, String("L3"), Int(300))
	mustAppend(t, loans, String("L1"), Int(100))
	mustAppend(t, loans, String("L2"), Int(200))

	defaults := MustNew("defaults", "Loan_ID", "Default_Amount")
	mustAppend(t, defaults, String("L1"), Int(5000))
	mustAppend(t, defaults, String("L9"), Int(1)) // no loan

	out, err := LeftJoin(loans, defaults, "Loan_ID", "Loan_ID")
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"Loan_ID", "EMI_Amount", "Default_Amount"}, out.Columns())

	ids := []string{}
	for i := 0; i < out.Len(); i++ {
		s, _ := out.Get(i, "Loan_ID").Str()
		ids = append(ids, s)
	}
	assert.Equal(t, []string{"L3", "L1", "L2"}, ids)

	assert.True(t, out.Get(0, "Default_Amount").IsAbsent())
	amt, ok := out.Get(1, "Default_Amount").Float()
	require.True(t, ok)
	assert.Equal(t, 5000.0, amt)
}

func TestLeftJoin_FailsFastOnDuplicateRightKey(t *testing.T) {
	loans := MustNew("loans", "Loan_ID")
	mustAppend(t, loans, String("L1"))

	defaults := MustNew("defaults", "Loan_ID", "Default_Amount")
	mustAppend(t, defaults, String("L1"), Int(1))
	mustAppend(t, defaults, String("L1"), Int(2))

	_, err := LeftJoin(loans, defaults, "Loan_ID", "Loan_ID")
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestLeftJoin_AbsentKeysNeverMatch(t *testing.T) {
	loans := MustNew("loans", "Loan_ID", "Customer_ID")
	mustAppend(t, loans, String("L1"), Absent)

	customers := MustNew("customers", "Customer_ID", "Annual_Income")
	mustAppend(t, customers, Absent, Int(1))
	mustAppend(t, customers, Absent, Int(2)) // absent keys are not duplicates

	out, err := LeftJoin(loans, customers, "Customer_ID", "Customer_ID")
	require.NoError(t, err)
	assert.True(t, out.Get(0, "Annual_Income").IsAbsent())
}

func TestLeftJoin_SuffixesOverlappingColumns(t *testing.T) {
	loans := MustNew("loans", "Loan_ID", "Customer_ID", "Branch_ID")
	mustAppend(t, loans, String("L1"), Int(10), String("B1"))

	customers := MustNew("customers", "Customer_ID", "Branch_ID")
	mustAppend(t, customers, Int(10), String("B7"))

	out, err := LeftJoin(loans, customers, "Customer_ID", "Customer_ID")
	require.NoError(t, err)
	assert.Equal(t, []string{"Loan_ID", "Customer_ID", "Branch_ID_x", "Branch_ID_y"}, out.Columns())
	s, _ := out.Get(0, "Branch_ID_y").Str()
	assert.Equal(t, "B7", s)
}

func TestLeftJoin_MixedNumericKeyKinds(t *testing.T) {
	loans := MustNew("loans", "Loan_ID", "Customer_ID")
	mustAppend(t, loans, String("L1"), Float(10))

	customers := MustNew("customers", "Customer_ID", "Credit_Score")
	mustAppend(t, customers, Int(10), Int(720))

	out, err := LeftJoin(loans, customers, "Customer_ID", "Customer_ID")
	require.NoError(t, err)
	v, ok := out.Get(0, "Credit_Score").Int()
	require.True(t, ok)
	assert.EqualValues(t, 720, v)
}

func TestAssertUnique_MissingColumn(t *testing.T) {
	assert.ErrorIs(t, AssertUnique(MustNew("x", "a"), "b"), ErrMissingColumn)
}
