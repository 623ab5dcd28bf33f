package output

import "encoding/json"

type jsonFormatter struct{}

func (jsonFormatter) FormatTableList(r *TableListReport) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatLevels(r *LevelsReport) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatTable(r *TableReport) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatIndex(r *IndexReport) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatPage(r *PageReport) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatDescribe(r *DescribeReport) (string, error) {
	return marshalJSON(r)
}

func (jsonFormatter) FormatDump(r *DumpReport) (string, error) {
	return marshalJSON(r)
}

func marshalJSON(payload any) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
