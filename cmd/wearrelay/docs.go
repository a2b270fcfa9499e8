package main

// General API documentation for swaggo. Build with -tags swagger to serve
// the UI under /swagger/.
//
// @title           wearrelay API
// @version         1.0
// @description     Control API for the drone telemetry relay.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
