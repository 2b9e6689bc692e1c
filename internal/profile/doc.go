// Package profile implements the per-target strategies that write URLs and
// entry points into resource and act point lists.
//
// Each target (desktop/mobile player shell, the three preview flavours, the
// studio preview and the distributable bundle) is a small Profile
// implementation that holds only its own settings and composes one or more
// Injectors. Injectors substitute the $resourceId and $htmlPath placeholders
// verbatim and only ever add or overwrite their own key.
package profile
