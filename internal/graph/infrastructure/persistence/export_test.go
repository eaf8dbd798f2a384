package persistence

var AdvisoryKey = advisoryKey
