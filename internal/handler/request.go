package handler

import (
    "bytes"
    "encoding/json"
    "fmt"
)

// flexString accepts a JSON string or number and keeps its text.  Select
// widgets post option values as either depending on the data source.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
    b = bytes.TrimSpace(b)
    if bytes.Equal(b, []byte("null")) {
        *f = ""
        return nil
    }
    if len(b) > 0 && b[0] == '"' {
        var s string
        if err := json.Unmarshal(b, &s); err != nil {
            return err
        }
        *f = flexString(s)
        return nil
    }
    var n json.Number
    if err := json.Unmarshal(b, &n); err != nil {
        return fmt.Errorf("expected string or number, got %s", b)
    }
    *f = flexString(n.String())
    return nil
}

// optionField is the {value, label} object a select widget submits.
type optionField struct {
    Value flexString `json:"value"`
}

func (o *optionField) value() string {
    if o == nil {
        return ""
    }
    return string(o.Value)
}

type createShowtimeReq struct {
    MovieID     *optionField `json:"movie_id"`
    TheaterName *optionField `json:"theater_name"`
    StartDate   flexString   `json:"start_date"`
    EndDate     flexString   `json:"end_date"`
    ShowDate    flexString   `json:"show_date"`
}

type dateRangeReq struct {
    Start *flexString `json:"start"`
    End   *flexString `json:"end"`
}

type patchShowtimeReq struct {
    Movie         *flexString   `json:"movie"`
    Theater       *flexString   `json:"theater"`
    ShowDateRange *dateRangeReq `json:"showDateRange"`
}

func (f *flexString) ptr() *string {
    if f == nil {
        return nil
    }
    s := string(*f)
    return &s
}
