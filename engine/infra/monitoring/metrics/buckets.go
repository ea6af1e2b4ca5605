// Package metrics holds histogram layouts shared by the site collectors.
package metrics

// HTTPDurationBuckets spans fast static pages up to slow server-rendered
// admin listings.
var HTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// BackendDurationBuckets covers the hosted REST backend, whose cold starts
// can take several seconds.
var BackendDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30}
