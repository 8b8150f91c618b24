package core

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Parse(ctx context.Context, files SelectedFileSet) ([]byte, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDocumentService) Render(ctx context.Context, d *ReportDataset) ([]byte, string, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

const fiveRowBody = `{
  "rows": [
    {"值班助理":"张三","日期":"3月1日","上书量":10,"纠错量":2,"整架范围":"A1-A3","工作地点":"一楼"},
    {"值班助理":"李四","日期":"3月1日","上书量":7,"纠错量":1,"整架范围":"B1","工作地点":"二楼"},
    {"值班助理":"张三","日期":"3月2日","上书量":5,"纠错量":0,"整架范围":"A4","工作地点":"一楼"},
    {"值班助理":"王五","日期":"3月3日","上书量":3,"纠错量":4,"整架范围":"","工作地点":"三楼"},
    {"值班助理":"李四","日期":"3月4日","上书量":0,"纠错量":0,"整架范围":"C2","工作地点":"二楼"}
  ],
  "totals": {"总人数":3,"总班次":5,"上书量合计":25,"纠错量合计":7},
  "problems": "部分书架标签缺失"
}`
