package copper

// estimateWorkload estimates the base workload of the application, e.g. the
// amount of time between measurements at minimum cost, using a scalar Kalman
// filter. The previous xup is the observation coefficient.
//
// The result is undefined if the estimate reaches zero.
func estimateWorkload(fs *FilterState, performance, lastXup float64) float64 {
	// predict
	fs.XHatMinus = fs.XHat
	fs.PMinus = fs.P + fs.Q

	// update
	fs.H = lastXup
	fs.K = (fs.PMinus * fs.H) / ((fs.H * fs.PMinus * fs.H) + fs.R)
	fs.XHat = fs.XHatMinus + (fs.K * (performance - (fs.H * fs.XHatMinus)))
	fs.P = (1.0 - (fs.K * fs.H)) * fs.PMinus

	return 1.0 / fs.XHat
}
