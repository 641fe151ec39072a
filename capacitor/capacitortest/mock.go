// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package capacitortest

import (
	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/workkit/capacitor"
)

// Mock is a stretchr mock for a capacitor.  Submit is matched on mock.Anything, since functions
// cannot be compared, and a submitted function can be run with Discharged.
type Mock struct {
	mock.Mock
}

var _ capacitor.Interface = (*Mock)(nil)

func (m *Mock) Submit(f func()) {
	m.Called(f)
}

// OnSubmit expects a Submit.  Each submitted function is run immediately, as if the capacitor had
// discharged at once.
func (m *Mock) OnSubmit() *mock.Call {
	return m.On("Submit", mock.Anything).Run(func(args mock.Arguments) {
		args.Get(0).(func())()
	})
}

func (m *Mock) Discharge() {
	m.Called()
}

func (m *Mock) OnDischarge() *mock.Call {
	return m.On("Discharge")
}

func (m *Mock) Cancel() {
	m.Called()
}

func (m *Mock) OnCancel() *mock.Call {
	return m.On("Cancel")
}
