//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package http

import (
	"io"
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/couchbase/go_json"
	"github.com/gorilla/mux"

	"github.com/stranddb/query/accounting"
	"github.com/stranddb/query/errors"
	"github.com/stranddb/query/prepareds"
	"github.com/stranddb/query/server"
)

const (
	adminPrefix     = "/admin"
	pingPrefix      = adminPrefix + "/ping"
	settingsPrefix  = adminPrefix + "/settings"
	statsPrefix     = adminPrefix + "/stats"
	vitalsPrefix    = adminPrefix + "/vitals"
	preparedsPrefix = adminPrefix + "/prepareds"
)

// HttpEndpoint exposes the administrative REST surface: health, settings,
// metrics and the prepared statement cache contents.
type HttpEndpoint struct {
	server *server.Server
	mux    *mux.Router
}

type apiFunc func(*HttpEndpoint, http.ResponseWriter, *http.Request) (interface{}, errors.Error)

type handlerFunc func(http.ResponseWriter, *http.Request)

func NewAdminEndpoint(srvr *server.Server) *HttpEndpoint {
	rv := &HttpEndpoint{
		server: srvr,
		mux:    mux.NewRouter(),
	}
	rv.registerAdminHandlers()
	return rv
}

func (this *HttpEndpoint) Router() *mux.Router {
	return this.mux
}

func (this *HttpEndpoint) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	this.mux.ServeHTTP(w, req)
}

func AdminPrefix() string {
	return adminPrefix
}

func (this *HttpEndpoint) wrapAPI(w http.ResponseWriter, req *http.Request, f apiFunc) {
	obj, err := f(this, w, req)
	if err != nil {
		writeError(w, err)
		return
	}

	if obj == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	buf, json_err := json.Marshal(obj)
	if json_err != nil {
		writeError(w, errors.NewAdminBodyError(json_err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf)
}

func writeError(w http.ResponseWriter, err errors.Error) {
	w.Header().Set("Content-Type", "application/json")
	buf, er := json.Marshal(err)
	if er != nil {
		http.Error(w, er.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(mapErrorToHttpStatus(err))
	w.Write(buf)
}

func mapErrorToHttpStatus(err errors.Error) int {
	switch err.Code() {
	case errors.E_ADMIN_BODY, errors.E_ADMIN_UNKNOWN_SETTING, errors.E_ADMIN_SETTING_TYPE:
		return http.StatusBadRequest
	case errors.E_ADMIN_HTTP_METHOD:
		return http.StatusMethodNotAllowed
	case errors.E_NO_SUCH_PREPARED:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (this *HttpEndpoint) registerAdminHandlers() {
	pingHandler := func(w http.ResponseWriter, req *http.Request) {
		this.wrapAPI(w, req, doPing)
	}
	settingsHandler := func(w http.ResponseWriter, req *http.Request) {
		this.wrapAPI(w, req, doSettings)
	}
	statsHandler := func(w http.ResponseWriter, req *http.Request) {
		this.wrapAPI(w, req, doStats)
	}
	vitalsHandler := func(w http.ResponseWriter, req *http.Request) {
		this.wrapAPI(w, req, doVitals)
	}
	preparedsHandler := func(w http.ResponseWriter, req *http.Request) {
		this.wrapAPI(w, req, doPrepareds)
	}
	preparedHandler := func(w http.ResponseWriter, req *http.Request) {
		this.wrapAPI(w, req, doPrepared)
	}

	routeMap := map[string]struct {
		handler handlerFunc
		methods []string
	}{
		pingPrefix:                  {handler: pingHandler, methods: []string{"GET"}},
		settingsPrefix:              {handler: settingsHandler, methods: []string{"GET", "POST"}},
		statsPrefix:                 {handler: statsHandler, methods: []string{"GET"}},
		vitalsPrefix:                {handler: vitalsHandler, methods: []string{"GET"}},
		preparedsPrefix:             {handler: preparedsHandler, methods: []string{"GET"}},
		preparedsPrefix + "/{name}": {handler: preparedHandler, methods: []string{"GET", "DELETE"}},
	}

	for route, h := range routeMap {
		this.mux.HandleFunc(route, h.handler).Methods(h.methods...)
	}
}

func doPing(endpoint *HttpEndpoint, w http.ResponseWriter, req *http.Request) (interface{}, errors.Error) {
	return map[string]interface{}{"status": "ok"}, nil
}

func doSettings(endpoint *HttpEndpoint, w http.ResponseWriter, req *http.Request) (interface{}, errors.Error) {
	switch req.Method {
	case "GET":
		return endpoint.server.Settings(), nil
	case "POST":
		body, er := io.ReadAll(req.Body)
		if er != nil {
			return nil, errors.NewAdminBodyError(er)
		}
		var settings map[string]interface{}
		if er = json.Unmarshal(body, &settings); er != nil {
			return nil, errors.NewAdminBodyError(er)
		}
		if err := server.ProcessSettings(settings, endpoint.server); err != nil {
			return nil, err
		}
		return endpoint.server.Settings(), nil
	default:
		return nil, errors.NewAdminHttpMethodError(req.Method)
	}
}

func doStats(endpoint *HttpEndpoint, w http.ResponseWriter, req *http.Request) (interface{}, errors.Error) {
	reg := endpoint.server.AccountingStore().MetricRegistry()

	stats := make(map[string]interface{})
	for name, metric := range reg.Counters() {
		addMetricData(name, stats, getMetricData(metric))
	}
	for name, metric := range reg.Gauges() {
		addMetricData(name, stats, getMetricData(metric))
	}
	for name, metric := range reg.Meters() {
		addMetricData(name, stats, getMetricData(metric))
	}
	for name, metric := range reg.Timers() {
		addMetricData(name, stats, getMetricData(metric))
	}
	return stats, nil
}

func addMetricData(name string, stats map[string]interface{}, metrics map[string]interface{}) {
	for metric_type, metric_value := range metrics {
		stats[name+"."+metric_type] = metric_value
	}
}

func getMetricData(metric accounting.Metric) map[string]interface{} {
	values := make(map[string]interface{})
	switch metric := metric.(type) {
	case accounting.Counter:
		values["count"] = metric.Count()
	case accounting.Gauge:
		values["value"] = metric.Value()
	case accounting.Meter:
		values["count"] = metric.Count()
		values["1m.rate"] = metric.Rate1()
		values["5m.rate"] = metric.Rate5()
		values["15m.rate"] = metric.Rate15()
		values["mean.rate"] = metric.RateMean()
	case accounting.Timer:
		values["count"] = metric.Count()
		values["min"] = metric.Min()
		values["max"] = metric.Max()
		values["mean"] = metric.Mean()
		values["stddev"] = metric.StdDev()
		values["median"] = metric.Percentile(0.5)
		values["95%"] = metric.Percentile(0.95)
		values["99%"] = metric.Percentile(0.99)
		values["1m.rate"] = metric.Rate1()
		values["5m.rate"] = metric.Rate5()
		values["15m.rate"] = metric.Rate15()
		values["mean.rate"] = metric.RateMean()
	}
	return values
}

func doVitals(endpoint *HttpEndpoint, w http.ResponseWriter, req *http.Request) (interface{}, errors.Error) {
	return endpoint.server.AccountingStore().Vitals()
}

func doPrepareds(endpoint *HttpEndpoint, w http.ResponseWriter, req *http.Request) (interface{}, errors.Error) {
	cache := endpoint.server.Cache()
	numPrepareds := cache.CountPrepareds()
	data := make([]map[string]interface{}, 0, numPrepareds)

	snapshot := func(name string, d *prepareds.CacheEntry) bool {
		data = append(data, preparedData(name, d))
		return true
	}

	cache.PreparedsForeach(snapshot, nil)
	return data, nil
}

func doPrepared(endpoint *HttpEndpoint, w http.ResponseWriter, req *http.Request) (interface{}, errors.Error) {
	vars := mux.Vars(req)
	name := vars["name"]
	cache := endpoint.server.Cache()

	switch req.Method {
	case "GET":
		var itemMap map[string]interface{}
		cache.PreparedDo(name, prepareds.PRIMARY, func(d *prepareds.CacheEntry) {
			itemMap = preparedData(name, d)
		})
		if itemMap == nil {
			return nil, errors.NewNoSuchPreparedError(name)
		}
		return itemMap, nil
	case "DELETE":
		if err := cache.DeletePrepared(name, prepareds.PRIMARY); err != nil {
			return nil, err
		}
		return map[string]interface{}{"name": name}, nil
	default:
		return nil, errors.NewAdminHttpMethodError(req.Method)
	}
}

func preparedData(name string, d *prepareds.CacheEntry) map[string]interface{} {
	uses := atomic.LoadInt32(&d.Uses)
	itemMap := map[string]interface{}{
		"name":      d.Prepared.Name(),
		"statement": d.Prepared.Text(),
		"uses":      uses,
	}
	if d.Prepared.Keyspace() != "" {
		itemMap["keyspace"] = d.Prepared.Keyspace()
	}
	if d.Prepared.LegacyName() != 0 {
		itemMap["legacyName"] = d.Prepared.LegacyName()
	}
	if d.Prepared.EncodedPlan() != "" {
		itemMap["encoded_plan"] = d.Prepared.EncodedPlan()
	}

	// only report times for entries that have completed at least one execution
	if uses > 0 && uint64(d.ServiceTime) > 0 {
		itemMap["lastUse"] = d.LastUse.String()
		itemMap["avgServiceTime"] = (time.Duration(d.ServiceTime) /
			time.Duration(uses)).String()
		itemMap["minServiceTime"] = time.Duration(d.MinServiceTime).String()
		itemMap["maxServiceTime"] = time.Duration(d.MaxServiceTime).String()
	}
	return itemMap
}
