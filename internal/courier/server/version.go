package server

// Version is the courier server version string.
const Version = "0.1.0"
