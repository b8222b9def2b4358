// api/schemas/actions_test.go
package schemas

import (
	"fmt"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		action  Action
		wantErr string
	}{
		{
			name:   "valid click",
			action: Action{Type: ActionClick, Target: "Submit"},
		},
		{
			name:   "valid input with value",
			action: Action{Type: ActionInput, Target: "Email", Value: "a@b.com"},
		},
		{
			name:   "valid scroll without target",
			action: Action{Type: ActionScroll, Direction: ScrollDown, Value: 250},
		},
		{
			name:   "valid wait without target",
			action: Action{Type: ActionWait, Value: 1500},
		},
		{
			name:    "unknown type rejected",
			action:  Action{Type: "drag", Target: "thing"},
			wantErr: "unknown action type",
		},
		{
			name:    "empty type rejected",
			action:  Action{Target: "thing"},
			wantErr: "unknown action type",
		},
		{
			name:    "click without target rejected",
			action:  Action{Type: ActionClick},
			wantErr: "requires a target",
		},
		{
			name:    "hover without target rejected",
			action:  Action{Type: ActionHover},
			wantErr: "requires a target",
		},
		{
			name:    "scroll with text value rejected",
			action:  Action{Type: ActionScroll, Value: "far"},
			wantErr: "numeric pixel delta",
		},
		{
			name:    "scroll with bad direction rejected",
			action:  Action{Type: ActionScroll, Direction: "diagonal"},
			wantErr: "unknown scroll direction",
		},
		{
			name:    "wait with negative duration rejected",
			action:  Action{Type: ActionWait, Value: -5},
			wantErr: "non-negative",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.action.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestValidateSequence(t *testing.T) {
	t.Parallel()

	t.Run("reports the failing index", func(t *testing.T) {
		t.Parallel()
		actions := []Action{
			{Type: ActionClick, Target: "OK"},
			{Type: ActionInput}, // missing target
		}
		err := ValidateSequence(actions, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "action 1")
	})

	t.Run("enforces the default length cap", func(t *testing.T) {
		t.Parallel()
		actions := make([]Action, DefaultMaxSequenceLength+1)
		for i := range actions {
			actions[i] = Action{Type: ActionWait, Value: 1}
		}
		err := ValidateSequence(actions, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), fmt.Sprint(DefaultMaxSequenceLength))

		assert.NoError(t, ValidateSequence(actions[:DefaultMaxSequenceLength], 0))
	})

	t.Run("honors an explicit cap", func(t *testing.T) {
		t.Parallel()
		actions := []Action{
			{Type: ActionClick, Target: "a"},
			{Type: ActionClick, Target: "b"},
		}
		assert.Error(t, ValidateSequence(actions, 1))
		assert.NoError(t, ValidateSequence(actions, 2))
	})

	t.Run("empty sequence is valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidateSequence(nil, 0))
	})
}

func TestActionValueAccessors(t *testing.T) {
	t.Parallel()

	t.Run("text forms", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello", Action{Value: "hello"}.ValueText())
		assert.Equal(t, "", Action{}.ValueText())
		assert.Equal(t, "42", Action{Value: 42}.ValueText())
	})

	t.Run("numeric forms", func(t *testing.T) {
		t.Parallel()
		v, ok := Action{Value: 300}.ValueInt()
		require.True(t, ok)
		assert.Equal(t, int64(300), v)

		// JSON decoding delivers numbers as float64.
		v, ok = Action{Value: float64(250)}.ValueInt()
		require.True(t, ok)
		assert.Equal(t, int64(250), v)

		_, ok = Action{Value: "nope"}.ValueInt()
		assert.False(t, ok)
		_, ok = Action{}.ValueInt()
		assert.False(t, ok)
	})
}

func TestActionJSONRoundTrip(t *testing.T) {
	t.Parallel()
	json := jsoniter.ConfigCompatibleWithStandardLibrary

	in := Action{Type: ActionScroll, Direction: ScrollDown, Value: 300, Timestamp: 1700000000000}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Action
	require.NoError(t, json.Unmarshal(data, &out))
	require.NoError(t, out.Validate())

	delta, ok := out.ValueInt()
	require.True(t, ok)
	assert.Equal(t, int64(300), delta)
	assert.Equal(t, ScrollDown, out.Direction)
}
